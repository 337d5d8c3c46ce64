// Package httpapi provides the HTTP driving adapter for OpsMind: a JSON API for
// document management and analytics, and a server-sent event stream for answers.
//
// Identity is taken from trusted gateway headers (X-User-Id, X-User-Name,
// X-User-Role) and evaluated into capabilities once per request.
package httpapi
