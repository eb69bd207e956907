package packets

import "github.com/yntha/castleclash/internal/wire"

// NewRegistry builds the full identifier table for both directions. Called
// once at startup; an error here means the catalog itself is broken.
func NewRegistry() (*wire.Registry, error) {
	r := wire.NewRegistry()

	entries := []struct {
		direction wire.Direction
		id        uint16
		layout    *wire.Layout
		encrypted bool
	}{
		{wire.Client, ConnectLoginServerType, connectLoginServer, false},
		{wire.Client, ConnectGameServerType, connectGameServer, false},
		{wire.Client, AckEncryptionRespType, ackEncryptionResp, true},
		{wire.Client, GameInitCompleteType, gameInitComplete, true},
		{wire.Client, ActiveType, active, true},
		{wire.Client, GetSelectChatType, getSelectChat, true},

		{wire.Server, LoginValidateType, loginValidate, false},
		{wire.Server, GameLoginRespType, gameLoginResp, false},
		{wire.Server, WorldChatType, worldChat, false},
	}

	for _, e := range entries {
		if err := r.Register(e.direction, e.id, e.layout, e.encrypted); err != nil {
			return nil, err
		}
	}
	return r, nil
}
