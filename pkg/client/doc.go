// Package client is the Go SDK for the EduCoin token service.
//
// Read-only views need no session:
//
//	c, err := client.New("http://localhost:8080")
//	info, err := c.Info(ctx)
//	holders, err := c.Holders(ctx)
//
// Transfers and mints need a session token, obtained by logging in as an
// identity. Identities are not authenticated; the service only checks that
// mints come from the token's creator:
//
//	if _, err := c.Login(ctx, "admin"); err != nil {
//	    log.Fatal(err)
//	}
//	out, err := c.Transfer(ctx, "user1", 50000)
//	if err != nil {
//	    log.Fatal(err) // transport or server fault
//	}
//	if !out.Result.Success {
//	    fmt.Println("rejected:", out.Result.Message)
//	}
//
// Rejected transfers and mints are not Go errors: the ledger reports them in
// Outcome.Result, and callers branch on Result.Success.
package client
