package types

// Cluster identifies the target ledger network.
type Cluster string

const (
	ClusterMainnet Cluster = "mainnet-beta"
	ClusterDevnet  Cluster = "devnet"
	ClusterTestnet Cluster = "testnet"
)

// RPCEndpoint returns the public RPC endpoint for the cluster.
func (c Cluster) RPCEndpoint() string {
	switch c {
	case ClusterMainnet:
		return "https://api.mainnet-beta.solana.com"
	case ClusterTestnet:
		return "https://api.testnet.solana.com"
	default:
		return "https://api.devnet.solana.com"
	}
}

// IsValid reports whether the cluster is one soltip knows about.
func (c Cluster) IsValid() bool {
	return c == ClusterMainnet || c == ClusterDevnet || c == ClusterTestnet
}

func (c Cluster) String() string {
	return string(c)
}
