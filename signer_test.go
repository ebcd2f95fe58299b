package trustauth

import (
	"testing"
)

func TestEd25519SignerRoundtrip(t *testing.T) {
	signer, err := NewEd25519Signer()
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}

	message := []byte("authorize read on doc-1")
	signature, err := signer.Sign(message)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	verifier := signer.Verifier()
	if !verifier.Verify(message, signature) {
		t.Fatal("valid signature rejected")
	}
	if verifier.Verify([]byte("different message"), signature) {
		t.Fatal("signature verified against the wrong message")
	}

	tampered := append([]byte(nil), signature...)
	tampered[0] ^= 0xff
	if verifier.Verify(message, tampered) {
		t.Fatal("tampered signature accepted")
	}

	if len(signer.PublicKey()) != 32 {
		t.Fatalf("unexpected public key length %d", len(signer.PublicKey()))
	}
}

func TestBLSSignerRoundtrip(t *testing.T) {
	signer, err := NewBLSSigner()
	if err != nil {
		t.Skipf("bls key generation unavailable: %v", err)
	}

	message := []byte("authorize write on doc-2")
	signature, err := signer.Sign(message)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	if len(signature) == 0 {
		t.Fatal("empty bls signature")
	}

	verifier := signer.Verifier()
	if !verifier.Verify(message, signature) {
		t.Fatal("valid bls signature rejected")
	}
	if verifier.Verify([]byte("different message"), signature) {
		t.Fatal("bls signature verified against the wrong message")
	}
}

func TestSignerBindsProofGeneration(t *testing.T) {
	signer, err := NewEd25519Signer()
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}

	request := []byte("alice|doc-1|read")
	authSignature, err := signer.Sign(request)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	builder := NewCommitmentBuilder(BLAKE2B, 0, 0)
	proof, err := builder.GenerateProof("alice", "doc-1", "read", 90, nil, authSignature)
	if err != nil {
		t.Fatalf("proof generation failed: %v", err)
	}
	if len(proof.Value) != 32 {
		t.Fatalf("unexpected proof value length %d", len(proof.Value))
	}
}
