// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation protecting every route except the configured skips.
//   - rayid: a unique Request ID (RayID) for every incoming request, stored in
//     the context locals and echoed in the X-Ray-ID response header.
package middleware
