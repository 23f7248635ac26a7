package program

import "github.com/gagliardetto/solana-go"

const (
	INTERACT_DAPP_PROGRAM_ID = "DC2y62K2opFJ21AMZwcYG7HDaNfUTU4YZszpnpG18r61"
)

var InteractDappProgramID = solana.MustPublicKeyFromBase58(INTERACT_DAPP_PROGRAM_ID)

// instruction names as declared by the program
const (
	depositEarnName  = "deposit_earn"
	withdrawEarnName = "withdraw_earn"
	proxySwapName    = "proxy_swap"
)
