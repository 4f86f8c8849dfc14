//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"github.com/hack-pad/hackpadfs/indexeddb"

	"github.com/kittclouds/gosearch/internal/store"
	"github.com/kittclouds/gosearch/pkg/index"
)

// Version info
const Version = "0.1.0"

// The one manager instance for this tab. Constructed in initialize and
// threaded through every export; there is no ambient singleton package.
var manager *index.Manager

func main() {
	js.Global().Set("GoSearch", js.ValueOf(map[string]interface{}{
		"version":       js.FuncOf(getVersion),
		"initialize":    js.FuncOf(initialize),
		"rebuildIndex":  js.FuncOf(rebuildIndex),
		"addContent":    js.FuncOf(addContent),
		"removeContent": js.FuncOf(removeContent),
		"search":        js.FuncOf(search),
		"clearIndex":    js.FuncOf(clearIndex),
		"getStatus":     js.FuncOf(getStatus),
		"onEvent":       js.FuncOf(onEvent),
		"saveSnapshot":  js.FuncOf(saveSnapshot),
		"loadSnapshot":  js.FuncOf(loadSnapshot),
	}))

	println("[GoSearch] WASM Ready v" + Version)
	select {}
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// initialize opens the in-memory SQLite store and creates the manager.
// Args: [] — the index is a disposable cache, rebuilt on vault unlock.
func initialize(this js.Value, args []js.Value) interface{} {
	st, err := store.NewSQLiteStore()
	if err != nil {
		return errorResult("failed to open store: " + err.Error())
	}

	manager = index.New(st)
	if err := manager.Initialize(context.Background()); err != nil {
		return errorResult("failed to initialize index: " + err.Error())
	}

	return successResult("index initialized")
}

// rebuildIndex: [contentListJSON string]
func rebuildIndex(this js.Value, args []js.Value) interface{} {
	if manager == nil {
		return errorResult("not initialized")
	}
	if len(args) < 1 {
		return errorResult("requires 1 arg: contentListJSON (string)")
	}

	var contentList []*store.SearchableContent
	if err := json.Unmarshal([]byte(args[0].String()), &contentList); err != nil {
		return errorResult("invalid content list json: " + err.Error())
	}

	if err := manager.RebuildIndex(context.Background(), contentList); err != nil {
		return errorResult(err.Error())
	}
	return successResult("rebuild finished")
}

// addContent: [contentJSON string]
func addContent(this js.Value, args []js.Value) interface{} {
	if manager == nil {
		return errorResult("not initialized")
	}
	if len(args) < 1 {
		return errorResult("requires 1 arg: contentJSON (string)")
	}

	var content store.SearchableContent
	if err := json.Unmarshal([]byte(args[0].String()), &content); err != nil {
		return errorResult("invalid content json: " + err.Error())
	}

	if err := manager.AddContentToIndex(context.Background(), &content); err != nil {
		return errorResult(err.Error())
	}
	return successResult("content indexed")
}

// removeContent: [contentId string]
func removeContent(this js.Value, args []js.Value) interface{} {
	if manager == nil {
		return errorResult("not initialized")
	}
	if len(args) < 1 {
		return errorResult("requires 1 arg: contentId (string)")
	}

	if err := manager.RemoveContentFromIndex(context.Background(), args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("content removed")
}

// search: [query string, optsJSON string?] -> results JSON
func search(this js.Value, args []js.Value) interface{} {
	if manager == nil {
		return errorResult("not initialized")
	}
	if len(args) < 1 {
		return errorResult("requires at least 1 arg: query (string)")
	}

	var opts index.SearchOptions
	if len(args) >= 2 && args[1].String() != "" {
		if err := json.Unmarshal([]byte(args[1].String()), &opts); err != nil {
			return errorResult("invalid options json: " + err.Error())
		}
	}

	results := manager.Search(context.Background(), args[0].String(), opts)
	payload, err := json.Marshal(results)
	if err != nil {
		return errorResult("failed to marshal results: " + err.Error())
	}
	return string(payload)
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	if manager == nil {
		return errorResult("not initialized")
	}
	if err := manager.ClearIndex(context.Background()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("index cleared")
}

func getStatus(this js.Value, args []js.Value) interface{} {
	if manager == nil {
		return errorResult("not initialized")
	}
	meta, err := manager.GetStatus(context.Background())
	if err != nil {
		return errorResult(err.Error())
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return errorResult("failed to marshal status: " + err.Error())
	}
	return string(payload)
}

// onEvent: [eventType string, callback function] -> subscription id
// The callback receives one JSON string per event, e.g. progress events
// for a rebuild progress bar.
func onEvent(this js.Value, args []js.Value) interface{} {
	if manager == nil {
		return errorResult("not initialized")
	}
	if len(args) < 2 {
		return errorResult("requires 2 args: eventType (string), callback (function)")
	}

	callback := args[1]
	id := manager.On(index.EventType(args[0].String()), func(ev index.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		callback.Invoke(string(payload))
	})
	return id
}

// saveSnapshot persists the trie to the IndexedDB-backed filesystem so
// the next session warm-starts without replaying trie_nodes rows.
func saveSnapshot(this js.Value, args []js.Value) interface{} {
	if manager == nil {
		return errorResult("not initialized")
	}

	fs, err := indexeddb.NewFS(context.Background(), "gosearch", indexeddb.Options{})
	if err != nil {
		return errorResult("failed to create idb fs: " + err.Error())
	}
	if err := manager.SaveSnapshot(fs); err != nil {
		return errorResult(err.Error())
	}
	return successResult("snapshot saved")
}

func loadSnapshot(this js.Value, args []js.Value) interface{} {
	if manager == nil {
		return errorResult("not initialized")
	}

	fs, err := indexeddb.NewFS(context.Background(), "gosearch", indexeddb.Options{})
	if err != nil {
		return errorResult("failed to create idb fs: " + err.Error())
	}
	if err := manager.LoadSnapshot(fs); err != nil {
		return errorResult(err.Error())
	}
	return successResult("snapshot loaded")
}

func successResult(msg string) interface{} {
	return map[string]interface{}{"ok": true, "message": msg}
}

func errorResult(msg string) interface{} {
	return map[string]interface{}{"ok": false, "error": msg}
}
