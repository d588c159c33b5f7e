/*
Package authsdk provides a client SDK for the PakGroccrry authentication
service, plus the request/response types and typed errors shared between that
client and the server's HTTP layer.

# Usage

Create a Client pointed at the service and drive the verification flow:

	client := authsdk.NewClient("https://auth.example.com")

	// Start a flow. Delivered=false means the code email did not go out.
	login, err := client.Login(ctx, authsdk.LoginRequest{
		Address:     "kin@example.com",
		DisplayName: "Kin",
		NewUser:     true,
	})

	// Submit the code the user typed.
	verified, err := client.Verify(ctx, authsdk.VerifyRequest{
		Address: "kin@example.com",
		Code:    "483921",
	})

	// The bearer token authenticates session reads.
	session, err := client.GetSession(ctx, verified.Token)

# Errors

Failures that the service reports deliberately come back as *APIError values,
so callers can branch on the machine-readable code:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case authsdk.ErrorCodeInvalidCode:
			// keep the input active, let the user retry
		case authsdk.ErrorCodeTooManyAttempts, authsdk.ErrorCodeCodeExpired:
			// the flow is gone, restart registration
		}
	}

Transport-level failures (connection refused, timeouts) come back as plain
wrapped errors.
*/
package authsdk
