package memory

import (
	"testing"

	"github.com/MrSnakeDoc/ussm/internal/store"
	"github.com/MrSnakeDoc/ussm/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return New() })
}
