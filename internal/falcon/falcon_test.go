package falcon

import "testing"

func TestKeygenSizes(t *testing.T) {
	kp, err := Keygen()
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	if len(kp.Public) != PublicKeySize {
		t.Fatalf("expected public key size %d, got %d", PublicKeySize, len(kp.Public))
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := Keygen()
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	msg := []byte("nexus auth message")

	sig, err := kp.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	ok, err := Verify(kp.Public, msg, sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}
}

func TestSignaturesAreNonDeterministic(t *testing.T) {
	kp, err := Keygen()
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	msg := []byte("same message twice")

	sig1, err := kp.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig2, err := kp.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if string(sig1) == string(sig2) {
		t.Fatalf("expected distinct signatures across calls")
	}
}

func TestDestroyWipesPrivateKey(t *testing.T) {
	kp, err := Keygen()
	if err != nil {
		t.Fatalf("Keygen: %v", err)
	}
	kp.Destroy()
	for i, b := range kp.private {
		if b != 0 {
			t.Fatalf("private key byte %d not wiped", i)
		}
	}
}
