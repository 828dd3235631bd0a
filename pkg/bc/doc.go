// Package bc provides types, interfaces, and helpers for working with the
// Business Central OData API.
//
// # Overview
//
// The bc package defines the structured error returned by every operation,
// the categorizer that maps vendor error codes to a category and retry
// strategy, the capability interfaces consumed by the client (TokenProvider
// and Schema), and the typed records for common endpoints. A concrete client
// is provided by the bcclient package.
//
// Getting a client
//
//	cli, err := bcclient.New(ctx, &bc.Config{
//	  TenantID:     "contoso.onmicrosoft.com",
//	  Environment:  "production",
//	  CompanyID:    "7c3b5e0a-0000-4000-8000-000000000001",
//	  ClientID:     os.Getenv("BC_CLIENT_ID"),
//	  ClientSecret: os.Getenv("BC_CLIENT_SECRET"),
//	})
//	if err != nil { log.Fatal(err) }
//
// # Queries and pagination
//
// List returns a lazy iter.Seq2. Breaking out of the loop stops further
// requests; MaxResults caps the number of yielded items.
//
//	q := bc.NewQueryParams().WithFilter("city eq 'Seattle'")
//	for c, err := range cli.Customers().List(ctx, q, &bc.PaginationOptions{MaxResults: 50}) {
//	  if err != nil { return err }
//	  fmt.Println(c.DisplayName)
//	}
//
// # Errors
//
// Failures are always *bc.Error. Use AsError, IsNotFound, IsCategory and
// IsRetryable to inspect them. The retry strategy is advisory; the client
// never retries on its own (see the retry package for a caller-side helper).
package bc
