package memory_test

import (
	"testing"

	"github.com/aretw0/actbot/pkg/adapters/memory"
	"github.com/aretw0/actbot/pkg/ports"
	contract "github.com/aretw0/actbot/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryCollaborator_Contract(t *testing.T) {
	contract.CollaboratorContractTest(t, memory.NewCollaborator())
}
