// Package http provides HTTP handlers and middleware for the brokerage API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","user"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and clears
//     the cookie.
//   - POST /users: self-service registration for customer and agent accounts,
//     exchanging the `registerRequest`/`userDTO` payloads defined in
//     user_handler.go. GET /users lists accounts (administrators only) and
//     GET /users/{id} returns a single account to its owner or an administrator.
//   - GET /agents, GET /agents/{id}: agent directory endpoints exchanging the
//     `agentDTO` payload defined in agent_handler.go. PUT /agents/{id} updates
//     the profile fields (specialization, experience, status) and
//     PUT /agents/{id}/availability replaces an agent's weekly availability;
//     both are restricted to the owning agent or an administrator.
//   - POST /appointments: books a fixed-length appointment with an agent,
//     responding 201 with the created appointment or 409 when the slot is taken.
//     GET /appointments/{id} returns one appointment to its parties,
//     PUT /appointments/{id}/status completes or cancels it, and
//     GET /appointments/customer/{id} and GET /appointments/agent/{id} return
//     paginated listings shaped with the counterparty of the subject.
//   - GET /plans, POST /plans, GET /plans/{id}, PUT /plans/{id},
//     DELETE /plans/{id}: insurance plan catalog endpoints exchanging the
//     `planDTO` payload defined in plan_handler.go. Listing is available to any
//     authenticated principal while mutations require admin privileges.
//   - GET /notifications: lists the caller's notifications, newest first, with
//     an optional `unread=true` filter. PUT /notifications/{id}/read marks one
//     as read.
//   - GET /admin/stats: administrative dashboard counters.
//     PUT /admin/users/{id}/status activates or disables an account; disabled
//     accounts cannot log in and their open sessions stop validating.
//
// All endpoints except POST /login and POST /users require a valid session
// token. Request/response DTOs live alongside their respective handlers so
// tests and documentation share the same ground truth.
package http
