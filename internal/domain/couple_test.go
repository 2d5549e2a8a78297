package domain

import "testing"

func TestMakeCoupleIDOrderIndependent(t *testing.T) {
	if MakeCoupleID("bob", "alice") != MakeCoupleID("alice", "bob") {
		t.Fatalf("id пары должен не зависеть от порядка участников")
	}
}

func TestIsCoupleMember(t *testing.T) {
	coupleID := MakeCoupleID("alice", "bob")
	if !IsCoupleMember(coupleID, "alice") || !IsCoupleMember(coupleID, "bob") {
		t.Fatalf("участники пары не распознаны")
	}
	if IsCoupleMember(coupleID, "ali") {
		t.Fatalf("префикс чужого id не должен считаться участником")
	}
	if IsCoupleMember(coupleID, "eve") {
		t.Fatalf("посторонний пользователь не должен считаться участником")
	}
}

func TestPartnerOf(t *testing.T) {
	coupleID := MakeCoupleID("alice", "bob")
	partner, ok := PartnerOf(coupleID, "alice")
	if !ok || partner != "bob" {
		t.Fatalf("ожидали партнёра bob, получили %q", partner)
	}
	if _, ok := PartnerOf(coupleID, "eve"); ok {
		t.Fatalf("у постороннего пользователя нет партнёра")
	}
}
