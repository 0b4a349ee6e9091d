package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultRegistry is the ENS registry deployed on mainnet and the common
// testnets.
const DefaultRegistry = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

// 4-byte selectors for resolver(bytes32) and addr(bytes32).
var (
	selectorResolver = []byte{0x01, 0x78, 0xb8, 0xbf}
	selectorAddr     = []byte{0x3b, 0x3b, 0x57, 0xde}
)

// ENSResolver resolves names through the ENS registry on a JSON-RPC
// node. The connection is dialed lazily on first use so a misconfigured
// node URL surfaces as a resolution failure, not a startup failure.
type ENSResolver struct {
	nodeURL  string
	registry common.Address
	logger   *slog.Logger

	mu     sync.Mutex
	client *ethclient.Client
}

func NewENSResolver(nodeURL, registry string, logger *slog.Logger) *ENSResolver {
	registryAddr := common.HexToAddress(DefaultRegistry)
	if common.IsHexAddress(registry) {
		registryAddr = common.HexToAddress(registry)
	}
	return &ENSResolver{
		nodeURL:  strings.TrimSpace(nodeURL),
		registry: registryAddr,
		logger:   logger,
	}
}

func (r *ENSResolver) ethClient() (*ethclient.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}
	client, err := rpc.Dial(r.nodeURL)
	if err != nil {
		return nil, fmt.Errorf("dial eth node: %w", err)
	}
	r.client = ethclient.NewClient(client)
	r.logger.Info("ens resolver connected", "registry", r.registry.Hex())
	return r.client, nil
}

// Resolve returns the address registered for name, or an empty string
// when the name has no resolver or no address record. The caller bounds
// the call with ctx.
func (r *ENSResolver) Resolve(ctx context.Context, name string) (string, error) {
	client, err := r.ethClient()
	if err != nil {
		return "", err
	}
	node := Namehash(name)

	resolverAddr, err := r.callForAddress(ctx, client, r.registry, selectorResolver, node)
	if err != nil {
		return "", fmt.Errorf("resolver lookup for %s: %w", name, err)
	}
	if resolverAddr == (common.Address{}) {
		return "", nil
	}

	address, err := r.callForAddress(ctx, client, resolverAddr, selectorAddr, node)
	if err != nil {
		return "", fmt.Errorf("addr lookup for %s: %w", name, err)
	}
	if address == (common.Address{}) {
		return "", nil
	}
	return strings.ToLower(address.Hex()), nil
}

func (r *ENSResolver) callForAddress(ctx context.Context, client *ethclient.Client, to common.Address, selector []byte, node [32]byte) (common.Address, error) {
	data := make([]byte, 0, 36)
	data = append(data, selector...)
	data = append(data, node[:]...)
	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return common.Address{}, err
	}
	if len(result) < 32 {
		return common.Address{}, nil
	}
	return common.BytesToAddress(result[12:32]), nil
}

// Namehash implements the ENS name hashing algorithm (EIP-137): labels
// are hashed right to left into a rolling keccak256 node.
func Namehash(name string) [32]byte {
	var node [32]byte
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = [32]byte(crypto.Keccak256(node[:], labelHash))
	}
	return node
}
