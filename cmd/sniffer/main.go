// The sniffer captures live game traffic and prints the decoded messages
// in both directions. Pointing it at a session from the very beginning lets
// it learn the DES session key from the game server's login response, after
// which it can also decrypt the client's encrypted messages.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

var (
	device     = flag.String("d", "en0", "Device on which to listen for packets")
	serverPort = flag.Uint("p", 0, "Game/login server port; traffic to this port is treated as client-sent")
)

func main() {
	flag.Parse()

	if *serverPort == 0 || *serverPort > math.MaxUint16 {
		exit("a valid server port is required (-p)")
	}
	if getDeviceIP() == "" {
		exit("invalid device: %s", *device)
	}

	handle, err := pcap.OpenLive(*device, math.MaxInt32, false, pcap.BlockForever)
	if err != nil {
		exit("error opening handle: %v", err)
	}
	if err := handle.SetBPFFilter(fmt.Sprintf("tcp and port %d", *serverPort)); err != nil {
		exit("error setting filter: %v", err)
	}

	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()

	s, err := newSniffer(writer, uint16(*serverPort))
	if err != nil {
		exit("error initializing sniffer: %v", err)
	}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	s.startReading(packetSource.Packets())
}

func exit(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

func getDeviceIP() string {
	devs, _ := pcap.FindAllDevs()
	for _, dev := range devs {
		if dev.Name == *device {
			for _, address := range dev.Addresses {
				return address.IP.String()
			}
		}
	}
	return ""
}
