package registry

// Argent wallet detector deployments. Argent only ships on Ethereum mainnet.
var argentWalletDetectorByChainID = map[int64]string{
	1: "0xeca4B0bDBf7c55E9b7925919d03CbF8Dc82537E8",
}

func ArgentWalletDetector(chainID int64) (string, bool) {
	value, ok := argentWalletDetectorByChainID[chainID]
	return value, ok
}
