package protocol

// Kind is the tag that selects how an envelope's payload is interpreted.
type Kind string

// Client-to-server kinds.
const (
	KindTestPing            Kind = "test/ping"
	KindPlayerJoin          Kind = "player/join"
	KindDeviceCreate        Kind = "device/create"
	KindDeviceUpdate        Kind = "device/update"
	KindDeviceDelete        Kind = "device/delete"
	KindChatSend            Kind = "chat/send"
	KindPowerConnect        Kind = "power/connect"
	KindPowerDisconnect     Kind = "power/disconnect"
	KindMaintenanceStart    Kind = "maintenance/start"
	KindMaintenanceComplete Kind = "maintenance/complete"
)

// Server-to-client kinds.
const (
	KindTestPong             Kind = "test/pong"
	KindPlayerJoined         Kind = "player/joined"
	KindPlayerLeft           Kind = "player/left"
	KindDeviceCreated        Kind = "device/created"
	KindDeviceUpdated        Kind = "device/updated"
	KindDeviceDeleted        Kind = "device/deleted"
	KindChatReceived         Kind = "chat/received"
	KindPowerConnected       Kind = "power/connected"
	KindPowerDisconnected    Kind = "power/disconnected"
	KindPowerNetworkUpdated  Kind = "power/networkUpdated"
	KindMaintenanceStarted   Kind = "maintenance/started"
	KindMaintenanceCompleted Kind = "maintenance/completed"
	KindSystemError          Kind = "system/error"
)

// ErrorCode identifies the operation that failed in a system/error frame.
type ErrorCode string

// Error codes sent to clients.
const (
	CodeDeviceCreateFailed    ErrorCode = "DEVICE_CREATE_FAILED"
	CodeDeviceUpdateFailed    ErrorCode = "DEVICE_UPDATE_FAILED"
	CodeDeviceDeleteFailed    ErrorCode = "DEVICE_DELETE_FAILED"
	CodePlayerJoinFailed      ErrorCode = "PLAYER_JOIN_FAILED"
	CodeChatSendFailed        ErrorCode = "CHAT_SEND_FAILED"
	CodePowerConnectFailed    ErrorCode = "POWER_CONNECT_FAILED"
	CodePowerDisconnectFailed ErrorCode = "POWER_DISCONNECT_FAILED"
	CodeMaintenanceFailed     ErrorCode = "MAINTENANCE_FAILED"
	CodeInvalidMessage        ErrorCode = "INVALID_MESSAGE"
	CodeMessageHandlerError   ErrorCode = "MESSAGE_HANDLER_ERROR"
)

// Reason classifies why an operation failed.
type Reason string

// Failure reasons.
const (
	ReasonNotFound     Reason = "not_found"
	ReasonDuplicateKey Reason = "duplicate_key"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonInvalid      Reason = "invalid"
	ReasonInternal     Reason = "internal"
)
