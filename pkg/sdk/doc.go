// Package trailsearch is a Go client for the trailsearch HTTP API.
//
// Searches stream: the callback sees every event as it arrives and Search
// returns the terminal outcome.
//
//	client, _ := trailsearch.New("http://localhost:8080", trailsearch.WithAPIKey(key))
//	res, err := client.Search(ctx, "easy loop near Chicago with lake views", trailsearch.Direct,
//	    func(e trailsearch.Event) error {
//	        if e.Type == trailsearch.EventToken {
//	            fmt.Print(e.Content)
//	        }
//	        return nil
//	    })
//	for _, t := range res.Results {
//	    fmt.Println(t.Name, t.DistanceMiles, t.Why)
//	}
//
// Browsing and lookups are plain request/response:
//
//	trails, _ := client.Trails(ctx, "Wisconsin", 20)
//	trail, _ := client.Trail(ctx, 42)
package trailsearch
