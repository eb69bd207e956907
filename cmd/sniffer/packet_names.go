package main

import (
	"github.com/yntha/castleclash/internal/packets"
	"github.com/yntha/castleclash/internal/wire"
)

// Names for the identifiers recovered so far. New identifiers show up as
// "unknown" alongside their hexdump, which is usually the starting point
// for reversing them.

var clientPacketNames = map[uint16]string{
	packets.ConnectLoginServerType: "ConnectLoginServer",
	packets.ConnectGameServerType:  "ConnectGameServer",
	packets.AckEncryptionRespType:  "AckEncryptionResp",
	packets.GameInitCompleteType:   "GameInitComplete",
	packets.ActiveType:             "Active",
	packets.GetSelectChatType:      "GetSelectChat",
	packets.CapturedLoginType:      "CapturedLogin",
}

var serverPacketNames = map[uint16]string{
	packets.LoginValidateType: "LoginValidate",
	packets.GameLoginRespType: "GameLoginResp",
	packets.WorldChatType:     "WorldChat",
}

func packetName(direction wire.Direction, id uint16) string {
	names := serverPacketNames
	if direction == wire.Client {
		names = clientPacketNames
	}
	if name, ok := names[id]; ok {
		return name
	}
	return "unknown"
}
