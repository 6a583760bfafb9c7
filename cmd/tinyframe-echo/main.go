// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command tinyframe-echo is a minimal TCP demo: it accepts one connection,
// frames the stream with tinyframe, and echoes every received frame back
// to the sender with its type incremented by one.
package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/pflag"

	"code.hybscloud.com/tinyframe"
)

func main() {
	host := pflag.StringP("host", "h", "localhost", "address to listen on")
	port := pflag.StringP("port", "p", "7425", "port to listen on")
	help := pflag.Bool("help", false, "display help text")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tinyframe-echo: accept one TCP connection and echo framed messages\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	addr := net.JoinHostPort(*host, *port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tinyframe-echo: listen: %v\n", err)
		os.Exit(1)
	}
	defer ln.Close()
	fmt.Printf("tinyframe-echo: listening on %s\n", addr)

	conn, err := ln.Accept()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tinyframe-echo: accept: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := serve(conn); err != nil {
		fmt.Fprintf(os.Stderr, "tinyframe-echo: %v\n", err)
		os.Exit(1)
	}
}

func serve(conn net.Conn) error {
	in := tinyframe.New[uint16, uint16, uint16](tinyframe.Slave, tinyframe.WithTCP())
	in.SetWrite(func(_ *tinyframe.Instance[uint16, uint16, uint16], p []byte) error {
		_, err := conn.Write(p)
		return err
	})
	_, err := in.AddGenericListener(func(inst *tinyframe.Instance[uint16, uint16, uint16], msg tinyframe.Message[uint16, uint16]) tinyframe.ListenerResult {
		fmt.Printf("tinyframe-echo: received type=%d len=%d\n", msg.MsgType, len(msg.Data))
		reply := tinyframe.NewResponse(msg, msg.MsgType+1, msg.Data)
		if werr := inst.Respond(reply); werr != nil {
			fmt.Fprintf(os.Stderr, "tinyframe-echo: respond: %v\n", werr)
		}
		return tinyframe.Stay
	})
	if err != nil {
		return err
	}

	buf := make([]byte, 4096)
	for {
		n, rerr := conn.Read(buf)
		if n > 0 {
			in.Accept(buf[:n])
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return nil
			}
			return rerr
		}
	}
}
