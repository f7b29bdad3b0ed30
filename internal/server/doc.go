// Package server provides the temporary HTTP server used during CLI
// authentication.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// The [BasicRouter] implementation uses [http.ServeMux] internally with
// method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow: it
// validates the state parameter, exchanges the authorization code for tokens,
// and sends the result through a channel. Only one callback is processed.
//
// When the user runs `featx auth`, a server starts on localhost:3000 via
// [Listen], handles the callback, and shuts down after delivering the token.
package server
