package packets

import "github.com/yntha/castleclash/internal/wire"

// Message types sent by the client.
const (
	ConnectLoginServerType = 0x0232
	ConnectGameServerType  = 0x01f7
	AckEncryptionRespType  = 0x03ed
	GameInitCompleteType   = 0x03f8
	ActiveType             = 0x03eb
	GetSelectChatType      = 0x042c
)

// AuthKeySize is the padded size of the login server auth key.
const AuthKeySize = 512

// LoginKeySize is the padded size of the login key relayed to the game
// server. Note that the login server only ever hands back 89 bytes of key;
// the client is still expected to pad it out to 156.
const LoginKeySize = 156

// WorldChatChannel is the channel id for the broadcast (world) chat.
const WorldChatChannel = 7

var connectLoginServer = wire.NewLayout("connect_login_server",
	wire.U32("client_version"),
	wire.U64("user_id"),
	wire.String("auth_key", AuthKeySize),
	wire.U32("game_id"),
	wire.Bytes("padding", 8),
)

var connectGameServer = wire.NewLayout("connect_game_server",
	wire.U32("unknown_1"),
	wire.U64("user_id"),
	wire.String("login_key", LoginKeySize),
	wire.U32("client_sign"),
	wire.U32("client_version"),
)

var ackEncryptionResp = wire.NewLayout("ack_encryption_resp",
	wire.U32("seq_id"),
	wire.U64("user_id"),
	wire.U32("unknown_1"),
	wire.U32("platform_lang_id"),
)

var gameInitComplete = wire.NewLayout("game_init_complete",
	wire.U32("seq_id"),
)

var active = wire.NewLayout("active",
	wire.U32("seq_id"),
)

var getSelectChat = wire.NewLayout("get_select_chat",
	wire.U32("seq_id"),
	wire.U32("channel_id"),
)

// ConnectLoginServer builds the initial login server authentication request.
func ConnectLoginServer(clientVersion uint32, userID uint64, authKey string, gameID uint32) *wire.Message {
	return connectLoginServer.New().
		SetUint("client_version", uint64(clientVersion)).
		SetUint("user_id", userID).
		SetString("auth_key", authKey).
		SetUint("game_id", uint64(gameID))
}

// ConnectGameServer builds the game server login request carrying the login
// key obtained from the login server.
func ConnectGameServer(userID uint64, loginKey string, clientSign, clientVersion uint32) *wire.Message {
	return connectGameServer.New().
		SetUint("user_id", userID).
		SetString("login_key", loginKey).
		SetUint("client_sign", uint64(clientSign)).
		SetUint("client_version", uint64(clientVersion))
}

// AckEncryptionResp acknowledges the session key exchange. The first
// message sent encrypted.
func AckEncryptionResp(seqID uint32, userID uint64, languageID uint32) *wire.Message {
	return ackEncryptionResp.New().
		SetUint("seq_id", uint64(seqID)).
		SetUint("user_id", userID).
		SetUint("platform_lang_id", uint64(languageID))
}

// GameInitComplete tells the server the client has consumed the initial
// state burst.
func GameInitComplete(seqID uint32) *wire.Message {
	return gameInitComplete.New().SetUint("seq_id", uint64(seqID))
}

// Active is the client heartbeat.
func Active(seqID uint32) *wire.Message {
	return active.New().SetUint("seq_id", uint64(seqID))
}

// GetSelectChat polls a chat channel for new messages.
func GetSelectChat(seqID, channelID uint32) *wire.Message {
	return getSelectChat.New().
		SetUint("seq_id", uint64(seqID)).
		SetUint("channel_id", uint64(channelID))
}
