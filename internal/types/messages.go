package types

// JT808 message ids handled by this receiver.
const (
	MsgID_TerminalGeneralResponse uint16 = 0x0001
	MsgID_PlatformGeneralResponse uint16 = 0x8001
	MsgID_Heartbeat               uint16 = 0x0002
	MsgID_TerminalRegistration    uint16 = 0x0100
	MsgID_RegistrationResponse    uint16 = 0x8100
	MsgID_TerminalLogout          uint16 = 0x0003
	MsgID_TerminalAuthentication  uint16 = 0x0102
	MsgID_SetTerminalParameters   uint16 = 0x8103
	MsgID_LocationReport          uint16 = 0x0200
	MsgID_LocationQueryResponse   uint16 = 0x8201
)

var msgIDNames = map[uint16]string{
	MsgID_TerminalGeneralResponse: "Terminal General Response",
	MsgID_PlatformGeneralResponse: "Platform General Response",
	MsgID_Heartbeat:               "Heartbeat",
	MsgID_TerminalRegistration:    "Terminal Registration",
	MsgID_RegistrationResponse:    "Terminal Registration Response",
	MsgID_TerminalLogout:          "Terminal Logout",
	MsgID_TerminalAuthentication:  "Terminal Authentication",
	MsgID_SetTerminalParameters:   "Set Terminal Parameters",
	MsgID_LocationReport:          "Location Information Report",
	MsgID_LocationQueryResponse:   "Location Information Query Response",
}

func MsgIDName(id uint16) string {
	if name, ok := msgIDNames[id]; ok {
		return name
	}
	return "Unknown"
}

// General response result codes.
const (
	Result_Success      byte = 0
	Result_Failure      byte = 1
	Result_MessageError byte = 2
	Result_Unsupported  byte = 3
)

// Location report additional-data tags.
const (
	TLV_Mileage byte = 0x01
	TLV_Fuel    byte = 0x02
	TLV_Signal  byte = 0x25

	// Vendor pet-telemetry extensions.
	TLV_PetBattery     byte = 0x30
	TLV_PetActivity    byte = 0x31
	TLV_PetHealthFlags byte = 0x32
	TLV_PetTemperature byte = 0x33
)

// Text protocol command tokens.
const (
	TextCmd_Heartbeat = "BP00"
	TextCmd_Login     = "BP01"
	TextCmd_GPS       = "BP02"
	TextCmd_Status    = "BP03"
	TextCmd_Alarm     = "BP04"
	TextCmd_Terminal  = "BP05"
	TextCmd_Message   = "BP06"
	TextCmd_CmdResp   = "BP07"
)

var TextCommands = []string{
	TextCmd_Heartbeat, TextCmd_Login, TextCmd_GPS, TextCmd_Status,
	TextCmd_Alarm, TextCmd_Terminal, TextCmd_Message, TextCmd_CmdResp,
}
