// Package handler provides HTTP request handlers for the Ascend API.
//
// Each handler struct depends on a small interface describing the service
// operations it calls, so tests can substitute function-field fakes.
//
// # Handler Pattern
//
//   - Constructor function (NewXxxHandler) accepts its service dependencies
//   - RegisterRoutes mounts the handler on a ServeMux with "METHOD /path" patterns
//   - Request bodies are decoded strictly and checked with ValidateRequest
//   - Errors are mapped to RFC 9457 Problem Details by MapServiceError
//
// # Response Format
//
//   - WriteData: single resource in a {"data": ...} envelope with optional links
//   - WriteCollection: list with optional pagination
//   - WriteError: application/problem+json
//
// # Admin Routes
//
// AdminHandler routes are registered behind a guard middleware, normally
// middleware.AdminKey. The acting administrator is recorded on manual badge
// awards.
package handler
