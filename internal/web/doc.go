// Package web holds the HTTP plumbing shared by the server and the approval
// routes: the JSON envelope, request ids, zap request logging, panic recovery
// and per-IP rate limiting.
package web
