// Package propmatch provides a Go client for the propmatch listing
// search service.
//
//	client := propmatch.New("http://localhost:8080")
//	resp, _ := client.Search(ctx, propmatch.SearchRequest{
//	    Query:       "sunny flat near the park",
//	    MaxPrice:    propmatch.Float(2500),
//	    MinBedrooms: propmatch.Int(2),
//	})
//	for _, r := range resp.Results {
//	    fmt.Printf("%.2f  %s\n", r.FinalScore, r.Description)
//	}
package propmatch
