package memory_test

import (
	"testing"

	"github.com/iliyamo/seat-inventory/internal/repository/memory"
	"github.com/iliyamo/seat-inventory/internal/repository/storetest"
)

func TestStoreSuite(t *testing.T) {
	store := memory.NewStore()
	storetest.Run(t, store, store)
}
