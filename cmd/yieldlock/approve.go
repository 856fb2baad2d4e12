package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"yieldLock/internal/display"
	"yieldLock/internal/wallet"
)

// promptApprover asks on out and reads y/N from in before each signature.
func promptApprover(in io.Reader, out io.Writer) wallet.Approver {
	reader := bufio.NewReader(in)
	return func(account common.Address, tx *types.Transaction) bool {
		to := "contract creation"
		if tx.To() != nil {
			to = tx.To().Hex()
		}
		fmt.Fprintf(out, "Sign transaction from %s to %s (value %s, gas %d)? [y/N] ",
			display.ShortAddress(account.Hex()), to, display.FormatAmount(tx.Value()), tx.Gas())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
