// Native smoke harness for the index engine. Runs the rebuild/search/
// remove cycle against both store implementations.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kittclouds/gosearch/internal/store"
	"github.com/kittclouds/gosearch/pkg/index"
)

func main() {
	fmt.Println("Testing MemStore...")
	st := store.NewMemStore()
	runCycle(st)
	st.Close()

	fmt.Println("\nTesting SQLiteStore...")
	sq, err := store.NewSQLiteStore()
	if err != nil {
		log.Fatalf("NewSQLiteStore failed: %v", err)
	}
	runCycle(sq)
	sq.Close()

	fmt.Println("\n✅ All checks passed!")
}

func runCycle(st store.Storer) {
	ctx := context.Background()
	now := time.Now().UnixMilli()

	mgr := index.New(st)
	if err := mgr.Initialize(ctx); err != nil {
		log.Fatalf("Initialize failed: %v", err)
	}
	fmt.Println("  ✓ Initialize works")

	contents := []*store.SearchableContent{
		{
			ID:          "idea-1",
			ContentType: store.ContentIdea,
			Text:        "warm analog bus compression on the drum group",
			Tags:        []string{"mixing"},
			Status:      store.StatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "entry-1",
			ContentType: store.ContentInfobase,
			Text:        "digital reverb tail settings for small rooms",
			Tags:        []string{"fx"},
			Status:      store.StatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	progress := 0
	mgr.On(index.EventRebuildProgress, func(ev index.Event) {
		progress = ev.ItemsProcessed
	})

	if err := mgr.RebuildIndex(ctx, contents); err != nil {
		log.Fatalf("RebuildIndex failed: %v", err)
	}
	if progress != len(contents) {
		log.Fatalf("expected progress %d, got %d", len(contents), progress)
	}
	fmt.Println("  ✓ RebuildIndex works")

	results := mgr.Search(ctx, "bus", index.SearchOptions{})
	if len(results) != 1 || results[0].ID != "idea-1" {
		log.Fatalf("search 'bus' expected [idea-1], got %v", results)
	}
	fmt.Println("  ✓ Search works")

	if err := mgr.RemoveContentFromIndex(ctx, "idea-1"); err != nil {
		log.Fatalf("RemoveContentFromIndex failed: %v", err)
	}
	if results := mgr.Search(ctx, "bus", index.SearchOptions{}); len(results) != 0 {
		log.Fatalf("search after remove expected no results, got %v", results)
	}
	fmt.Println("  ✓ RemoveContentFromIndex works")

	meta, err := mgr.GetStatus(ctx)
	if err != nil {
		log.Fatalf("GetStatus failed: %v", err)
	}
	if meta.Status != store.IndexReady {
		log.Fatalf("expected ready status, got %s", meta.Status)
	}
	fmt.Println("  ✓ GetStatus works")
}
