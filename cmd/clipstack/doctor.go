package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDoctorCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run the self-test suite of every content-type module",
		Long: `Builds the configured loader chain and runs each loader's self-tests:
persistence round trips, format sniffing, encryption. Exits non-zero if
any check fails.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runDoctor(v) },
	}

	addStoreFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDoctor(v *viper.Viper) error {
	reg, _, err := newRegistry(v)
	if err != nil {
		return err
	}

	var failed int
	for _, l := range reg.Loaders() {
		tests := l.SelfTests()
		if len(tests) == 0 {
			fmt.Printf("%-8s (no self-tests)\n", l.ID())
			continue
		}
		for _, st := range tests {
			if err := st.Run(); err != nil {
				failed++
				fmt.Printf("%-8s FAIL  %s: %v\n", l.ID(), st.Name, err)
			} else {
				fmt.Printf("%-8s ok    %s\n", l.ID(), st.Name)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d self-test(s) failed", failed)
	}
	return nil
}
