package main

import (
	"bufio"
	"encoding/binary"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/gopacket"

	"github.com/yntha/castleclash/internal/debug"
	"github.com/yntha/castleclash/internal/encryption"
	"github.com/yntha/castleclash/internal/packets"
	"github.com/yntha/castleclash/internal/wire"
)

type sniffer struct {
	writer     *bufio.Writer
	serverPort uint16

	registry *wire.Registry
	crypt    *encryption.Session

	// One reassembly buffer per direction. Capture chunks do not respect
	// frame boundaries any more than socket reads do.
	clientBuffer []byte
	serverBuffer []byte
}

func newSniffer(writer *bufio.Writer, serverPort uint16) (*sniffer, error) {
	registry, err := packets.NewRegistry()
	if err != nil {
		return nil, err
	}
	return &sniffer{
		writer:     writer,
		serverPort: serverPort,
		registry:   registry,
		crypt:      encryption.NewSession(),
	}, nil
}

func (s *sniffer) startReading(packetChan chan gopacket.Packet) {
	for packet := range packetChan {
		transport := packet.TransportLayer()
		app := packet.ApplicationLayer()
		if transport == nil || app == nil {
			continue
		}

		flow := transport.TransportFlow()
		dstPort := binary.BigEndian.Uint16(flow.Dst().Raw())
		clientPacket := dstPort == s.serverPort

		s.handleData(clientPacket, app.Payload())
		s.writer.Flush()
	}
}

func (s *sniffer) handleData(clientPacket bool, data []byte) {
	buffer := &s.serverBuffer
	if clientPacket {
		buffer = &s.clientBuffer
	}
	*buffer = append(*buffer, data...)

	for {
		if len(*buffer) < packets.HeaderSize {
			return
		}
		size := int(binary.LittleEndian.Uint16((*buffer)[:2]))
		if size < packets.HeaderSize {
			// Unframed garbage (or a capture started mid-frame); there is no
			// way to resynchronize, so drop the direction's buffer.
			fmt.Fprintf(s.writer, "dropping %d bytes: bad frame length %d\n", len(*buffer), size)
			*buffer = nil
			return
		}
		if size > len(*buffer) {
			return
		}

		frame := (*buffer)[:size]
		*buffer = append([]byte{}, (*buffer)[size:]...)
		s.emitFrame(clientPacket, frame)
	}
}

func (s *sniffer) emitFrame(clientPacket bool, frame []byte) {
	header, _ := packets.ParseHeader(frame)

	direction := wire.Server
	label := "server -> client"
	if clientPacket {
		direction = wire.Client
		label = "client -> server"
	}

	fmt.Fprintf(s.writer, "[%s] 0x%04x %s (%d bytes)\n",
		label, header.ID, packetName(direction, header.ID), len(frame))
	fmt.Fprintln(s.writer, debug.Hexdump(frame))

	entry := s.registry.Resolve(direction, header.ID)
	if entry == nil {
		return
	}

	body := frame[packets.HeaderSize:]
	if entry.Encrypted {
		if !s.crypt.Initialized() {
			fmt.Fprintln(s.writer, "(encrypted; session key not yet observed)")
			return
		}
		decrypted, err := s.crypt.Decrypt(body)
		if err != nil {
			fmt.Fprintf(s.writer, "(decrypt failed: %v)\n", err)
			return
		}
		body = decrypted
	}

	msg, err := wire.Decode(entry.Layout, body)
	if err != nil {
		fmt.Fprintf(s.writer, "(decode failed: %v)\n", err)
		return
	}

	fmt.Fprint(s.writer, spew.Sdump(msg.Values))
	for i, rec := range msg.Records {
		fmt.Fprintf(s.writer, "record %d:\n%s", i, spew.Sdump(rec.Values))
	}

	// The game login response carries the session key in the clear; learn it
	// so the rest of the session can be decrypted.
	if !clientPacket && header.ID == packets.GameLoginRespType {
		if err := s.crypt.Initialize(msg.Bytes("des_key")); err != nil {
			fmt.Fprintf(s.writer, "(unusable session key: %v)\n", err)
			return
		}
		fmt.Fprintln(s.writer, "(session key learned, decrypting from here on)")
	}
}
