package registry

// ABI fragments used by chain reads and wrap execution.
const (
	ERC20ABI = `[
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
	]`

	// WETH9-compatible wrapped native token (WCRO, WETH, WBNB).
	WrappedNativeABI = `[
		{"name":"deposit","type":"function","stateMutability":"payable","inputs":[],"outputs":[]},
		{"name":"withdraw","type":"function","stateMutability":"nonpayable","inputs":[{"name":"wad","type":"uint256"}],"outputs":[]},
		{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`

	ArgentWalletDetectorABI = `[
		{"name":"isArgentWallet","type":"function","stateMutability":"view","inputs":[{"name":"_wallet","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
	]`
)
