package config

import "strings"

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// NativeSOLMint is the Solana mint that the bridge uses for native SOL.
const NativeSOLMint = "So11111111111111111111111111111111111111112"

// NetworkProfile is the explicit set of chain ids, contracts and RPC targets
// used to build and observe payments. It is passed to the components that
// need it instead of being read from the environment inside them.
type NetworkProfile struct {
	Name string

	// Base (EVM)
	BaseChainID            int64
	BaseRPCURL             string
	BridgeAddress          string
	BridgeValidatorAddress string
	CrossChainERC20Factory string
	WrappedSOLAddress      string

	// Solana
	SolanaCluster       string
	SolanaRPCURL        string
	SolanaBridgeProgram string
	SolanaRelayer       string
	SolanaGasReceiver   string

	// RemoteTokens maps a lower-cased Base token address to its Solana mint.
	RemoteTokens map[string]string
}

var (
	mainnetProfile = NetworkProfile{
		Name:                   NetworkMainnet,
		BaseChainID:            8453,
		BaseRPCURL:             "https://mainnet.base.org",
		BridgeAddress:          "0x3eff766C76a1be2Ce1aCF2B69c78bCae257D5188",
		BridgeValidatorAddress: "0xAF24c1c24Ff3BF1e6D882518120fC25442d6794B",
		CrossChainERC20Factory: "0xDD56781d0509650f8C2981231B6C917f2d5d7dF2",
		WrappedSOLAddress:      "0x311935Cd80B76769bF2ecC9D8Ab7635b2139cf82",
		SolanaCluster:          "mainnet-beta",
		SolanaRPCURL:           "https://api.mainnet-beta.solana.com",
		SolanaBridgeProgram:    "HNCne2FkVaNghhjKXapxJzPaBvAKDG1Ge3gqhZyfVWLM",
		SolanaRelayer:          "g1et5VenhfJHJwsdJsDbxWZuotD5H4iELNG61kS4fb9",
	}

	testnetProfile = NetworkProfile{
		Name:                   NetworkTestnet,
		BaseChainID:            84532,
		BaseRPCURL:             "https://sepolia.base.org",
		BridgeAddress:          "0x01824a90d32A69022DdAEcC6C5C14Ed08dB4EB9B",
		BridgeValidatorAddress: "0xa80C07DF38fB1A5b3E6a4f4FAAB71E7a056a4EC7",
		CrossChainERC20Factory: "0x488EB7F7cb2568e31595D48cb26F63963Cc7565D",
		WrappedSOLAddress:      "0xCace0c896714DaF7098FFD8CC54aFCFe0338b4BC",
		SolanaCluster:          "devnet",
		SolanaRPCURL:           "https://api.devnet.solana.com",
		SolanaBridgeProgram:    "7c6mteAcTXaQ1MFBCrnuzoZVTTAEfZwa6wgy4bqX3KXC",
		SolanaRelayer:          "56MBBEYAtQAdjT4e1NzHD8XaoyRSTvfgbSVVcEcHj51H",
		SolanaGasReceiver:      "AFs1LCbodhvwpgX3u3URLsud6R1XMSaMiQ5LtXw4GKYT",
	}
)

// MainnetProfile returns a copy of the Base mainnet / Solana mainnet-beta profile.
func MainnetProfile() NetworkProfile {
	return mainnetProfile.withRemoteTokens(nil)
}

// TestnetProfile returns a copy of the Base Sepolia / Solana devnet profile.
func TestnetProfile() NetworkProfile {
	return testnetProfile.withRemoteTokens(nil)
}

// LoadNetworkProfile selects a profile by name and applies environment
// overrides for RPC endpoints and extra remote-token mappings
// (REMOTE_TOKENS="0xBase=SolMint,...").
func LoadNetworkProfile(name string) NetworkProfile {
	p := TestnetProfile()
	if strings.EqualFold(name, NetworkMainnet) {
		p = MainnetProfile()
	}
	p.BaseRPCURL = getEnv("BASE_RPC_URL", p.BaseRPCURL)
	p.SolanaRPCURL = getEnv("SOLANA_RPC_URL", p.SolanaRPCURL)
	p.BridgeAddress = getEnv("BASE_BRIDGE_ADDRESS", p.BridgeAddress)

	extra := map[string]string{}
	for _, pair := range getEnvAsList("REMOTE_TOKENS", nil) {
		local, remote, ok := strings.Cut(pair, "=")
		if ok {
			extra[strings.TrimSpace(local)] = strings.TrimSpace(remote)
		}
	}
	return p.withRemoteTokens(extra)
}

// RemoteToken returns the Solana mint for a Base token address.
func (p NetworkProfile) RemoteToken(localToken string) (string, bool) {
	mint, ok := p.RemoteTokens[strings.ToLower(localToken)]
	return mint, ok
}

func (p NetworkProfile) withRemoteTokens(extra map[string]string) NetworkProfile {
	tokens := make(map[string]string, len(p.RemoteTokens)+len(extra)+1)
	for k, v := range p.RemoteTokens {
		tokens[k] = v
	}
	if p.WrappedSOLAddress != "" {
		tokens[strings.ToLower(p.WrappedSOLAddress)] = NativeSOLMint
	}
	for k, v := range extra {
		tokens[strings.ToLower(k)] = v
	}
	p.RemoteTokens = tokens
	return p
}
