package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/argon-chat/fidocore/fido"
)

func getInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "getinfo",
		Short: "Print the hex-encoded authenticatorGetInfo response for the configured device",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			aaguid, err := cfg.Device.AAGUID()
			if err != nil {
				return err
			}

			a := fido.New(fido.DefaultSettings(aaguid))
			resp := a.CBOR([]byte{fido.CommandGetInfo})

			fmt.Printf("status: 0x%02X\n", resp[0])
			fmt.Printf("cbor:   %s\n", hex.EncodeToString(resp[1:]))
			return nil
		},
	}
}
