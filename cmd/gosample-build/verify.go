package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rajveermalviya/gosample/internal/ffiload"
	"github.com/rajveermalviya/gosample/message"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <library>",
	Short: "Load a built shared library and check its exported messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	lib, err := ffiload.Open(args[0])
	if err != nil {
		return err
	}
	defer lib.Close()

	for _, hello := range []bool{true, false} {
		got, err := lib.Message(hello)
		if err != nil {
			return err
		}

		want := message.Get(hello)
		if got != want {
			return fmt.Errorf("verify: %s: %s(%t) = %q, expected %q", lib.Path(), ffiload.GetMessageSymbol, hello, got, want)
		}
		logger.Info("verified export", zap.Bool("hello", hello), zap.String("message", got))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", lib.Path())
	return nil
}
