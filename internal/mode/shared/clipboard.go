package shared

import "github.com/atotto/clipboard"

// Clipboard defines the interface for clipboard operations.
type Clipboard interface {
	Copy(text string) error
}

// SystemClipboard implements Clipboard using the system clipboard.
type SystemClipboard struct{}

// Copy copies text to the system clipboard.
func (SystemClipboard) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// MockClipboard is a no-op clipboard for testing.
type MockClipboard struct{}

// Copy is a no-op that always succeeds.
func (MockClipboard) Copy(string) error { return nil }
