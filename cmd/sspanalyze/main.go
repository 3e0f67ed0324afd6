// Command sspanalyze processes binary Saleae digital capture files of SSP bus
// traffic into a human readable transaction log. Each chip select frame
// becomes one line with the controller-out and controller-in byte streams;
// identical consecutive transactions are collapsed with a repeat count.
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/soypat/saleae"
	"github.com/soypat/saleae/analyzers"
)

// Optional flags.
var (
	timingsOutput string
)

type BusCtl struct {
	// Interpret bytes as words in this order. Nil leaves the raw byte stream.
	WordInterpreter binary.ByteOrder
	TrimForce       uint
	OmitInput       bool
	MinLen          uint
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "sspanalyze - Process binary Saleae digital data files corresponding to SSP bus transactions.\n\tUsage:\n")
		flag.PrintDefaults()
	}
	sdo := flag.String("f-sdo", "digital_1.bin", "Input filename: controller-out serial data (MOSI).")
	sdi := flag.String("f-sdi", "digital_3.bin", "Input filename: controller-in serial data (MISO).")
	enable := flag.String("f-cs", "digital_0.bin", "Input filename: chip select data.")
	clk := flag.String("f-clk", "digital_2.bin", "Input filename: serial clock data.")
	output := flag.String("o-tx", "transactions.txt", "Output filename of decoded transactions.")

	flag.StringVar(&timingsOutput, "o-time", "", "Output timing data to a file corresponding to output transaction history line-by-line.")
	flagInterpretWords := flag.String("interpret-words", "", "Interpret byte data as uint32 words. Accepts 'be' or 'le'.")
	flagTrimForce := flag.Uint("trim-force", 0, "Trims n bytes off the end of every transaction.")
	omitInput := flag.Bool("omit-sdi", false, "Omit controller-in data in output.")
	minLen := flag.Uint("min-len", 0, "Drop transactions shorter than n bytes. Filters glitch frames.")
	flag.Parse()
	getOrder := func(s string) binary.ByteOrder {
		switch s {
		case "":
			return nil
		case "be":
			return binary.BigEndian
		case "le":
			return binary.LittleEndian
		}
		log.Fatal("invalid ordering ", s)
		return nil
	}
	bus := BusCtl{
		WordInterpreter: getOrder(*flagInterpretWords),
		TrimForce:       *flagTrimForce,
		OmitInput:       *omitInput,
		MinLen:          *minLen,
	}
	start := time.Now()
	if err := bus.run(*sdo, *sdi, *enable, *clk, *output); err != nil {
		log.Fatal(err.Error())
	}
	log.Println("finished in", time.Since(start))
}

func (bus *BusCtl) run(sdo, sdi, enable, clk, output string) error {
	txs, err := bus.processSpiFiles(sdo, sdi, clk, enable)
	if err != nil {
		return err
	}
	fp, err := os.Create(output)
	if err != nil {
		return err
	}
	defer fp.Close()

	var timings *os.File
	if timingsOutput != "" {
		log.Println("creating timings file", timingsOutput)
		timings, err = os.Create(timingsOutput)
		if err != nil {
			return err
		}
		defer timings.Close()
	}

	for _, tx := range txs {
		if bus.OmitInput {
			_, err = fmt.Fprintf(fp, "tx×%2d len=%4d sdo=%#x\n", tx.Num, len(tx.SDO), tx.SDO)
		} else {
			_, err = fmt.Fprintf(fp, "tx×%2d len=%4d sdo=%#x sdi=%#x\n", tx.Num, len(tx.SDO), tx.SDO, tx.SDI)
		}
		if err != nil {
			return err
		}
		if timings != nil {
			fmt.Fprintf(timings, "t=%f\tsdo=%#x\n", tx.Start, tx.SDO)
		}
	}
	return nil
}

func (bus *BusCtl) processSpiFiles(fsdo, fsdi, fclk, fenable string) ([]ssptx, error) {
	sdo, err := opendigital(fsdo)
	if err != nil {
		return nil, err
	}
	sdi, err := opendigital(fsdi)
	if err != nil {
		return nil, err
	}
	clk, err := opendigital(fclk)
	if err != nil {
		return nil, err
	}
	enable, err := opendigital(fenable)
	if err != nil {
		return nil, err
	}
	spi := analyzers.SPI{}
	txs, err := spi.Scan(clk, enable, sdo, sdi)
	if err != nil {
		return nil, err
	}
	return bus.process(txs), nil
}

func opendigital(filename string) (*saleae.DigitalFile, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	df, err := saleae.ReadDigitalFile(fp)
	if err != nil {
		return nil, err
	}
	return df, nil
}

type ssptx struct {
	Num   int
	SDO   []byte
	SDI   []byte
	Start float64
}

func (bus *BusCtl) process(txs []analyzers.TxSPI) (out []ssptx) {
	repeats := 1
	for i := 0; i < len(txs); i++ {
		tx := txs[i]
		sdo, sdi := bus.trim(tx.SDO), bus.trim(tx.SDI)
		if len(sdo) < int(bus.MinLen) {
			continue
		}
		for j := i + 1; j < len(txs); j++ {
			if !bytes.Equal(txs[j].SDO, tx.SDO) || !bytes.Equal(txs[j].SDI, tx.SDI) {
				break
			}
			repeats++
			i = j
		}
		bus.interpretBytes(sdo)
		bus.interpretBytes(sdi)
		out = append(out, ssptx{
			Num:   repeats,
			SDO:   sdo,
			SDI:   sdi,
			Start: tx.StartTime(),
		})
		repeats = 1
	}
	return out
}

func (bus *BusCtl) trim(data []byte) []byte {
	n := len(data) - int(bus.TrimForce)
	if n < 0 {
		n = 0
	}
	return data[:n]
}

func (bus *BusCtl) interpretBytes(data []byte) {
	if bus.WordInterpreter == nil {
		return
	}
	for len(data) >= 4 {
		word := binary.LittleEndian.Uint32(data[:4])
		bus.WordInterpreter.PutUint32(data[:4], word)
		data = data[4:]
	}
}
