package redsys

import (
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// SignatureVersion is the only scheme Redsys currently accepts.
const SignatureVersion = "HMAC_SHA256_V1"

// deriveOrderKey diversifies the merchant secret for one ds_order: the order
// number is zero-padded to a 3DES block multiple and encrypted in CBC mode
// with a zero IV using the base64-decoded merchant key.
func deriveOrderKey(secretKey, dsOrder string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(secretKey)
	if err != nil {
		return nil, fmt.Errorf("merchant key is not valid base64: %w", err)
	}

	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, fmt.Errorf("merchant key is not a valid 3DES key: %w", err)
	}

	plaintext := []byte(dsOrder)
	if rem := len(plaintext) % des.BlockSize; rem != 0 {
		plaintext = append(plaintext, make([]byte, des.BlockSize-rem)...)
	}

	iv := make([]byte, des.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)
	return ciphertext, nil
}

// sign computes the keyed hash over the encoded merchant parameters exactly
// as transmitted.
func sign(secretKey, dsOrder, encodedParams string) ([]byte, error) {
	orderKey, err := deriveOrderKey(secretKey, dsOrder)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, orderKey)
	mac.Write([]byte(encodedParams))
	return mac.Sum(nil), nil
}

// Sign produces the request signature (standard base64, as the redirect form
// expects).
func Sign(secretKey, dsOrder, encodedParams string) (string, error) {
	raw, err := sign(secretKey, dsOrder, encodedParams)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// VerifySignature checks a notification signature in constant time. Redsys
// sends notification signatures URL-safe base64 encoded; standard encoding is
// accepted too.
func VerifySignature(secretKey, dsOrder, encodedParams, signature string) (bool, error) {
	received, err := decodeBase64Lenient(signature)
	if err != nil {
		return false, nil
	}
	expected, err := sign(secretKey, dsOrder, encodedParams)
	if err != nil {
		return false, err
	}
	return hmac.Equal(received, expected), nil
}
