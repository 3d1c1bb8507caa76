package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tturner/mbsim/internal/modbus"
	"github.com/tturner/mbsim/internal/tui"
)

func newFunctionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the function codes the slave serves",
		Run: func(cmd *cobra.Command, args []string) {
			printFunctionCatalog()
		},
	}
}

type catalogEntry struct {
	fc    modbus.FunctionCode
	space string
	limit string
}

func printFunctionCatalog() {
	s := tui.DefaultStyles()

	entries := []catalogEntry{
		{modbus.FcReadCoils, "bit space", fmt.Sprintf("1-%d bits", modbus.MaxReadBits)},
		{modbus.FcReadDiscreteInputs, "bit space (alias of coils)", fmt.Sprintf("1-%d bits", modbus.MaxReadBits)},
		{modbus.FcReadHoldingRegisters, "word space", fmt.Sprintf("1-%d words", modbus.MaxReadWords)},
		{modbus.FcReadInputRegisters, "word space (alias of holding)", fmt.Sprintf("1-%d words", modbus.MaxReadWords)},
		{modbus.FcWriteSingleCoil, "bit space", "single bit, 0xFF00 = ON"},
		{modbus.FcWriteSingleRegister, "word space", "single word"},
		{modbus.FcWriteMultipleCoils, "bit space", fmt.Sprintf("1-%d bits", modbus.MaxWriteBits)},
		{modbus.FcWriteMultipleRegisters, "word space", fmt.Sprintf("1-%d words", modbus.MaxWriteWords)},
	}

	var body strings.Builder
	body.WriteString(s.Title.Render("Supported Modbus functions"))
	body.WriteString("\n\n")
	for _, e := range entries {
		body.WriteString(fmt.Sprintf("%s  %s\n      %s\n",
			s.Value.Render(fmt.Sprintf("0x%02X", uint8(e.fc))),
			s.Header.Render(e.fc.String()),
			s.Dim.Render(e.space+" — "+e.limit)))
	}
	body.WriteString("\n")
	body.WriteString(s.Dim.Render("Other function codes below 0x80 answer exception 0x01 (Illegal_Function)"))

	fmt.Println(s.Box.Render(body.String()))
}
