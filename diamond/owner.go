package diamond

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/smartcontractkit/chainlink-diamond-framework/state"
)

// StorageNamespace is the namespaced region holding the diamond's own bookkeeping.
const StorageNamespace = "diamond.standard.diamond.storage"

var contractOwnerKey = state.StringKey("contractOwner")

// ContractOwner reads the diamond owner from s.
func ContractOwner(s state.Storage) common.Address {
	return state.Open(s, state.Namespace(StorageNamespace)).Address(contractOwnerKey)
}

// SetContractOwner records owner in s.
func SetContractOwner(s state.Storage, owner common.Address) {
	state.Open(s, state.Namespace(StorageNamespace)).SetAddress(contractOwnerKey, owner)
}

// Authorizer decides whether caller may cut the diamond. s is the diamond's state as seen by
// the cut, including writes made earlier in the same call.
type Authorizer interface {
	IsAuthorized(s state.Storage, caller common.Address) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(s state.Storage, caller common.Address) bool

func (f AuthorizerFunc) IsAuthorized(s state.Storage, caller common.Address) bool { return f(s, caller) }

// OwnerAuthorizer only admits the contract owner.
type OwnerAuthorizer struct{}

func (OwnerAuthorizer) IsAuthorized(s state.Storage, caller common.Address) bool {
	owner := ContractOwner(s)

	return owner != (common.Address{}) && owner == caller
}
