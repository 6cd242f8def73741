package otp

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrNotTOTP is returned for URIs that are not otpauth://totp/ URIs.
var ErrNotTOTP = errors.New("otp: not a totp provisioning uri")

// Key is the parsed form of an otpauth://totp/ URI.
type Key struct {
	URI     string
	Issuer  string
	Account string
	Secret  string
	Period  uint64
	Digits  int
}

// Parse validates uri and extracts its TOTP parameters.
func Parse(uri string) (*Key, error) {
	k, err := otp.NewKeyFromURL(strings.TrimSpace(uri))
	if err != nil {
		return nil, err
	}
	if k.Type() != "totp" {
		return nil, ErrNotTOTP
	}

	return &Key{
		URI:     k.URL(),
		Issuer:  k.Issuer(),
		Account: k.AccountName(),
		Secret:  k.Secret(),
		Period:  k.Period(),
		Digits:  k.Digits().Length(),
	}, nil
}

// PNG renders uri as a size x size QR code.
func PNG(uri string, size int) ([]byte, error) {
	k, err := otp.NewKeyFromURL(strings.TrimSpace(uri))
	if err != nil {
		return nil, err
	}

	img, err := k.Image(size, size)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Terminal renders uri as a QR code made of half-block characters, two
// modules per line, with a one module quiet zone.
func Terminal(uri string) (string, error) {
	code, err := qr.Encode(uri, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}
	return renderBlocks(code), nil
}

func renderBlocks(code barcode.Barcode) string {
	bounds := code.Bounds()
	dark := func(x, y int) bool {
		if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
			return false
		}
		r, _, _, _ := code.At(x, y).RGBA()
		return r == 0
	}

	var sb strings.Builder
	for y := bounds.Min.Y - 1; y <= bounds.Max.Y; y += 2 {
		for x := bounds.Min.X - 1; x <= bounds.Max.X; x++ {
			top, bottom := dark(x, y), dark(x, y+1)
			switch {
			case top && bottom:
				sb.WriteRune(' ')
			case top:
				sb.WriteRune('▄')
			case bottom:
				sb.WriteRune('▀')
			default:
				sb.WriteRune('█')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// GenerateCode returns the code for secret at t using the key's period
// and digit count.
func (k *Key) GenerateCode(t time.Time) (string, error) {
	digits := otp.DigitsSix
	if k.Digits == 8 {
		digits = otp.DigitsEight
	}
	period := uint(k.Period)
	if period == 0 {
		period = 30
	}

	return totp.GenerateCodeCustom(k.Secret, t, totp.ValidateOpts{
		Period:    period,
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// Validate reports whether code is accepted at t with one step of skew.
func (k *Key) Validate(code string, t time.Time) bool {
	digits := otp.DigitsSix
	if k.Digits == 8 {
		digits = otp.DigitsEight
	}
	period := uint(k.Period)
	if period == 0 {
		period = 30
	}

	ok, err := totp.ValidateCustom(code, k.Secret, t, totp.ValidateOpts{
		Period:    period,
		Skew:      1,
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	return ok && err == nil
}
