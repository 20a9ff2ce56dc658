// Package usersdk is the HTTP client and wire types for the users service.
//
// Unauthenticated calls live on Client:
//
//	c := usersdk.NewClient("http://localhost:8080")
//	user, err := c.Register(ctx, usersdk.RegisterRequest{Email: "a@b.com", Password: "Abcdef1!", Name: "Ann"})
//	login, err := c.Login(ctx, "a@b.com", "Abcdef1!")
//
// Calls that need a bearer token go through a Session:
//
//	s := c.NewSession(login.AccessToken)
//	me, err := s.Profile(ctx, login.User.ID)
//
// Server errors are returned as *Error, which carries the HTTP status and
// the error code from the response body.
package usersdk
