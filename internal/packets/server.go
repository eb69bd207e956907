package packets

import "github.com/yntha/castleclash/internal/wire"

// Message types sent by the server.
const (
	LoginValidateType = 0x01f8
	GameLoginRespType = 0x01f9
	WorldChatType     = 0x03f6
)

// CapturedLoginType is the id of the login packet captured from the real
// client that genconfig mines for credentials. It is never seen on a live
// session (the client this replaces sends 0x0232 instead).
const CapturedLoginType = 0x021c

// Response to connect_login_server. The x_gs fields carry the game server
// address the client is actually expected to use; gs_hostname/gs_port look
// like a fallback but the real client ignores them.
var loginValidate = wire.NewLayout("login_validate",
	wire.U16("x_gs_port"),
	wire.U16("unknown_1"),
	wire.U64("user_id"),
	wire.String("x_gs_ip", 32),
	wire.String("login_key", 89),
	wire.String("gs_hostname", 129),
	wire.U16("gs_port"),
	wire.Bytes("padding", 692),
)

// Response to connect_game_server, delivering the DES session key.
var gameLoginResp = wire.NewLayout("game_login_resp",
	wire.Bytes("unknown_1", 4),
	wire.U64("user_id"),
	wire.Bytes("des_key", 16),
)

// One chat entry inside a world_chat tail. 184 bytes on the wire.
var worldChatMessage = wire.NewLayout("world_chat_message",
	wire.U64("player_id"),
	wire.U64("unknown_1"),
	wire.U32("unknown_2"),
	wire.CStr("player_name", 32),
	wire.CStr("message", 128),
	wire.U32("unknown_3"),
)

var worldChat = wire.NewLayout("world_chat",
	wire.U32("chat_type"),
	wire.U64("new_message_count"),
).WithTail("new_message_count", worldChatMessage)

// WorldChatRecord exposes the chat record layout for tooling that needs to
// build or slice individual entries.
func WorldChatRecord() *wire.Layout { return worldChatMessage }

var capturedLogin = wire.NewLayout("captured_login",
	wire.U32("client_version"),
	wire.U64("user_id"),
	wire.String("auth_key", AuthKeySize),
	wire.U32("game_id"),
)

// CapturedLoginLayout is the fixed portion of the captured 0x021c login
// packet, used by genconfig.
func CapturedLoginLayout() *wire.Layout { return capturedLogin }
