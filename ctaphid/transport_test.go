package ctaphid

import "testing"

type stubDispatcher struct {
	lastRequest []byte
	response    []byte
}

func (d *stubDispatcher) CBOR(request []byte) []byte {
	d.lastRequest = request
	return d.response
}

func TestTransportInitRoundTrip(t *testing.T) {
	f := NewFramer(WithChannelSource(NewScriptedSource([4]byte{1, 2, 3, 4})))
	tr := NewTransport(f, &stubDispatcher{})

	pkts := tr.HandlePacket(makeInitPacket(BroadcastChannel, 8, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	if len(pkts) != 1 {
		t.Fatalf("got %d packets, want 1", len(pkts))
	}
	if pkts[0][4] != 0x80|byte(CommandInit) {
		t.Errorf("cmd byte = %#x, want init", pkts[0][4])
	}
}

func TestTransportCborRoundTrip(t *testing.T) {
	f := NewFramer(WithChannelSource(NewScriptedSource([4]byte{1, 2, 3, 4})))
	disp := &stubDispatcher{response: []byte{0x00, 0xAA, 0xBB}}
	tr := NewTransport(f, disp)

	_ = tr.HandlePacket(makeInitPacket(BroadcastChannel, 8, make([]byte, 8)))
	cid := Channel{1, 2, 3, 4}

	req := []byte{0x04}
	pkt := make([]byte, PacketSize)
	copy(pkt[0:4], cid[:])
	pkt[4] = 0x80 | byte(CommandCBOR)
	pkt[5], pkt[6] = 0, byte(len(req))
	copy(pkt[7:], req)

	pkts := tr.HandlePacket(pkt)
	if len(pkts) != 1 {
		t.Fatalf("got %d packets, want 1", len(pkts))
	}
	if !bytesEqualPrefix(pkts[0][7:10], []byte{0x00, 0xAA, 0xBB}) {
		t.Errorf("response payload = % X, want 00 AA BB", pkts[0][7:10])
	}
	if disp.lastRequest[0] != 0x04 {
		t.Errorf("dispatcher saw command byte %#x, want 0x04", disp.lastRequest[0])
	}
}

func TestTransportPingEchoesPayload(t *testing.T) {
	f := NewFramer(WithChannelSource(NewScriptedSource([4]byte{1, 2, 3, 4})))
	tr := NewTransport(f, &stubDispatcher{})
	_ = tr.HandlePacket(makeInitPacket(BroadcastChannel, 8, make([]byte, 8)))
	cid := Channel{1, 2, 3, 4}

	pkt := make([]byte, PacketSize)
	copy(pkt[0:4], cid[:])
	pkt[4] = 0x80 | byte(CommandPing)
	pkt[5], pkt[6] = 0, 3
	copy(pkt[7:], []byte{0x11, 0x22, 0x33})

	pkts := tr.HandlePacket(pkt)
	if len(pkts) != 1 || !bytesEqualPrefix(pkts[0][7:10], []byte{0x11, 0x22, 0x33}) {
		t.Fatalf("got %+v, want echoed payload", pkts)
	}
}

func TestTransportEventHandlerInvokedForWink(t *testing.T) {
	f := NewFramer(WithChannelSource(NewScriptedSource([4]byte{1, 2, 3, 4})))
	called := false
	tr := NewTransport(f, &stubDispatcher{}, WithEventHandler(EventHandlerFunc(func(msg Message) []Packet {
		called = true
		if msg.Cmd != CommandWink {
			t.Errorf("event cmd = %v, want CommandWink", msg.Cmd)
		}
		return nil
	})))
	_ = tr.HandlePacket(makeInitPacket(BroadcastChannel, 8, make([]byte, 8)))
	cid := Channel{1, 2, 3, 4}

	pkt := make([]byte, PacketSize)
	copy(pkt[0:4], cid[:])
	pkt[4] = 0x80 | byte(CommandWink)
	pkt[5], pkt[6] = 0, 0

	_ = tr.HandlePacket(pkt)
	if !called {
		t.Fatal("expected EventHandler to be invoked for WINK")
	}
}

func TestTransportNoEventHandlerYieldsNoPackets(t *testing.T) {
	f := NewFramer(WithChannelSource(NewScriptedSource([4]byte{1, 2, 3, 4})))
	tr := NewTransport(f, &stubDispatcher{})
	_ = tr.HandlePacket(makeInitPacket(BroadcastChannel, 8, make([]byte, 8)))
	cid := Channel{1, 2, 3, 4}

	pkt := make([]byte, PacketSize)
	copy(pkt[0:4], cid[:])
	pkt[4] = 0x80 | byte(CommandCancel)
	pkt[5], pkt[6] = 0, 0

	pkts := tr.HandlePacket(pkt)
	if pkts != nil {
		t.Fatalf("got %+v, want nil packets with no EventHandler", pkts)
	}
}

func bytesEqualPrefix(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
