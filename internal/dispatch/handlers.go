package dispatch

import (
	"context"
	"fmt"

	"github.com/electricworld/electricworld-core/internal/device"
	"github.com/electricworld/electricworld-core/internal/protocol"
	"github.com/electricworld/electricworld-core/internal/session"
)

// requireSession returns the session bound to connectionID.
func (d *Dispatcher) requireSession(connectionID string) (session.Session, error) {
	s, ok := d.sessions.Lookup(connectionID)
	if !ok {
		return session.Session{}, fmt.Errorf("%w: connection %s", session.ErrSessionNotFound, connectionID)
	}
	return s, nil
}

func (d *Dispatcher) handlePing(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.Ping)
	d.unicast(connectionID, protocol.KindTestPong, protocol.Pong{
		OriginalTimestamp: m.Timestamp,
		ServerTimestamp:   d.now().UnixMilli(),
		Message:           protocol.PongMessage,
		ClientMessage:     m.Message,
	})
	return nil
}

func (d *Dispatcher) handleJoin(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.Join)
	s, err := d.sessions.Rename(connectionID, m.PlayerName, m.Avatar)
	if err != nil {
		return err
	}

	joined := protocol.PlayerJoined{PlayerID: s.ID, PlayerName: s.Name, Avatar: m.Avatar}
	d.unicast(connectionID, protocol.KindPlayerJoined, joined)
	d.logger.Info("player joined", "connection_id", connectionID, "player_id", s.ID, "player_name", s.Name)
	d.record(string(protocol.KindPlayerJoined), connectionID, s.ID, "", joined)
	return nil
}

func (d *Dispatcher) handleDeviceCreate(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.CreateDevice)
	s, err := d.requireSession(connectionID)
	if err != nil {
		return err
	}

	dev, err := d.store.Create(m.Draft, s.ID)
	if err != nil {
		return err
	}

	d.broadcast(protocol.KindDeviceCreated, dev)
	d.logger.Info("device created", "device_id", dev.ID, "type", dev.Type, "player_id", s.ID)
	d.record(string(protocol.KindDeviceCreated), connectionID, s.ID, dev.ID, dev)
	return nil
}

func (d *Dispatcher) handleDeviceUpdate(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.UpdateDevice)

	// With ownership disabled an update needs no identity at all.
	var requester string
	if s, ok := d.sessions.Lookup(connectionID); ok {
		requester = s.ID
	} else if d.store.EnforcesOwnership() {
		return fmt.Errorf("%w: connection %s", session.ErrSessionNotFound, connectionID)
	}

	dev, err := d.store.Update(m.DeviceID, m.Patch, requester)
	if err != nil {
		return err
	}

	d.broadcast(protocol.KindDeviceUpdated, dev)
	d.logger.Debug("device updated", "device_id", dev.ID, "player_id", requester)
	d.record(string(protocol.KindDeviceUpdated), connectionID, requester, dev.ID, dev)
	return nil
}

func (d *Dispatcher) handleDeviceDelete(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.DeleteDevice)
	s, err := d.requireSession(connectionID)
	if err != nil {
		return err
	}

	removed, err := d.store.Delete(m.DeviceID, s.ID)
	if err != nil {
		return err
	}

	deleted := protocol.DeviceDeleted{DeviceID: removed.ID, OwnerID: removed.OwnerID}
	d.broadcast(protocol.KindDeviceDeleted, deleted)

	// Former neighbours lost a connection; resend them in full.
	neighbours := append(append([]string{}, removed.InputConnections...), removed.OutputConnections...)
	seen := make(map[string]bool, len(neighbours))
	var updated []device.Device
	for _, id := range neighbours {
		if seen[id] {
			continue
		}
		seen[id] = true
		if n, ok := d.store.Get(id); ok {
			d.broadcast(protocol.KindDeviceUpdated, n)
			updated = append(updated, n)
		}
	}

	d.logger.Info("device deleted", "device_id", removed.ID, "player_id", s.ID)
	d.record(string(protocol.KindDeviceDeleted), connectionID, s.ID, removed.ID, deleted)
	for _, n := range updated {
		d.record(string(protocol.KindDeviceUpdated), connectionID, s.ID, n.ID, n)
	}
	return nil
}

// recordEndpoints records the current state of both ends of a link whose
// connection sets just changed.
func (d *Dispatcher) recordEndpoints(connectionID, playerID string, deviceIDs ...string) {
	for _, id := range deviceIDs {
		if dev, ok := d.store.Get(id); ok {
			d.record(string(protocol.KindDeviceUpdated), connectionID, playerID, id, dev)
		}
	}
}

func (d *Dispatcher) handleChat(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.ChatSend)
	s, err := d.requireSession(connectionID)
	if err != nil {
		return err
	}

	chat := protocol.ChatReceived{
		PlayerID:   s.ID,
		PlayerName: s.Name,
		Message:    m.Message,
		Timestamp:  d.now().UnixMilli(),
		Type:       protocol.ChatTypePublic,
	}
	d.broadcast(protocol.KindChatReceived, chat)
	d.record(string(protocol.KindChatReceived), connectionID, s.ID, "", chat)
	return nil
}

func (d *Dispatcher) handlePowerConnect(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.PowerConnect)
	s, err := d.requireSession(connectionID)
	if err != nil {
		return err
	}

	if err := d.store.Connect(m.FromDeviceID, m.ToDeviceID, s.ID); err != nil {
		return err
	}

	connType := m.ConnectionType
	if connType == "" {
		connType = protocol.ConnectionTypePower
	}
	conn := protocol.PowerConnection{
		FromDeviceID:   m.FromDeviceID,
		ToDeviceID:     m.ToDeviceID,
		ConnectionType: connType,
		PlayerID:       s.ID,
	}
	d.broadcast(protocol.KindPowerConnected, conn)
	d.broadcastNetworks(m.FromDeviceID)
	d.record(string(protocol.KindPowerConnected), connectionID, s.ID, m.FromDeviceID, conn)
	d.recordEndpoints(connectionID, s.ID, m.FromDeviceID, m.ToDeviceID)
	return nil
}

func (d *Dispatcher) handlePowerDisconnect(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.PowerDisconnect)
	s, err := d.requireSession(connectionID)
	if err != nil {
		return err
	}

	if err := d.store.Disconnect(m.FromDeviceID, m.ToDeviceID, s.ID); err != nil {
		return err
	}

	conn := protocol.PowerConnection{
		FromDeviceID: m.FromDeviceID,
		ToDeviceID:   m.ToDeviceID,
		PlayerID:     s.ID,
	}
	d.broadcast(protocol.KindPowerDisconnected, conn)
	d.broadcastNetworks(m.FromDeviceID, m.ToDeviceID)
	d.record(string(protocol.KindPowerDisconnected), connectionID, s.ID, m.FromDeviceID, conn)
	d.recordEndpoints(connectionID, s.ID, m.FromDeviceID, m.ToDeviceID)
	return nil
}

// broadcastNetworks announces the network of each given device once.
func (d *Dispatcher) broadcastNetworks(deviceIDs ...string) {
	sent := make(map[string]bool, len(deviceIDs))
	for _, id := range deviceIDs {
		net, ok := d.store.NetworkOf(id)
		if !ok || sent[net.ID] {
			continue
		}
		sent[net.ID] = true
		d.broadcast(protocol.KindPowerNetworkUpdated, net)
	}
}

func (d *Dispatcher) handleMaintenanceStart(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.MaintenanceStart)
	return d.maintain(connectionID, m.DeviceID, d.store.StartMaintenance, protocol.KindMaintenanceStarted)
}

func (d *Dispatcher) handleMaintenanceComplete(_ context.Context, connectionID string, msg protocol.Message) error {
	m := msg.(protocol.MaintenanceComplete)
	return d.maintain(connectionID, m.DeviceID, d.store.CompleteMaintenance, protocol.KindMaintenanceCompleted)
}

func (d *Dispatcher) maintain(
	connectionID, deviceID string,
	apply func(id, requesterID string) (device.Device, error),
	announce protocol.Kind,
) error {
	s, err := d.requireSession(connectionID)
	if err != nil {
		return err
	}

	dev, err := apply(deviceID, s.ID)
	if err != nil {
		return err
	}

	event := protocol.MaintenanceEvent{DeviceID: dev.ID, PlayerID: s.ID}
	d.broadcast(protocol.KindDeviceUpdated, dev)
	d.broadcast(announce, event)
	d.logger.Info("maintenance state changed", "device_id", dev.ID, "state", dev.State, "player_id", s.ID)
	d.record(string(announce), connectionID, s.ID, dev.ID, event)
	return nil
}
