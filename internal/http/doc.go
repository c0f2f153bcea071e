// Package http exposes the session and booking ledger over a small JSON API.
//
// Every response is an envelope {"success","message","data"}. Routes:
//   - POST /auth/sign-in: body {"email","password"}. 401 with the outcome
//     message when the credentials do not match.
//   - POST /auth/sign-up: body {"firstName","lastName","email","password"}.
//     201 on success, 409 when the email is taken.
//   - POST /auth/sign-out and GET /auth/session: the latter returns
//     {"authenticated","user"}.
//   - GET /favorites/{spaceId} reports whether the space is a favorite;
//     POST toggles it and needs a signed-in user.
//   - GET, POST /bookings; GET /bookings/stats; GET, PATCH, DELETE /bookings/{id};
//     POST /bookings/{id}/cancel; PUT /bookings/{id}/status with body {"status"}.
//     All booking routes need a signed-in user. Lookups and updates of a missing
//     booking return 404, while cancel, status and delete answer 200 with
//     success=false.
//
// RequestLogger tags each request with an X-Request-ID and places a request
// scoped logger in the context, which the application services also use.
package http
