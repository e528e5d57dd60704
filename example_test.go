package appdeck_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/appdeck"
	"github.com/hupe1980/appdeck/model"
)

// Example_search demonstrates ranking a fixed item list.
func Example_search() {
	ctx := context.Background()

	deck, err := appdeck.Open(ctx, appdeck.WithItems([]model.SearchItem{
		{ID: "com.apple.Safari", Name: "Safari", SecondaryKey: "com.apple.Safari"},
		{ID: "com.apple.Pages", Name: "Pages", SecondaryKey: "com.apple.Pages"},
		{ID: "com.apple.dt.Xcode", Name: "Xcode", SecondaryKey: "com.apple.dt.Xcode"},
	}))
	if err != nil {
		log.Fatal(err)
	}
	defer deck.Close()

	res, err := deck.Search(ctx, "pple")
	if err != nil {
		log.Fatal(err)
	}
	for _, it := range res {
		fmt.Println(it.Name)
	}
	// Output:
	// Pages
	// Xcode
	// Safari
}

// Example_hits demonstrates inspecting match details.
func Example_hits() {
	ctx := context.Background()

	deck, err := appdeck.Open(ctx, appdeck.WithItems([]model.SearchItem{
		{ID: "com.apple.Safari", Name: "Safari", SecondaryKey: "com.apple.Safari"},
		{ID: "org.gnu.emacs", Name: "Emacs"},
	}))
	if err != nil {
		log.Fatal(err)
	}
	defer deck.Close()

	hits, _ := deck.Hits(ctx, "sf")
	for _, h := range hits {
		fmt.Printf("%s %s %s\n", h.Item.Name, h.Kind, h.Field)
	}
	// Output: Safari fuzzy name
}
