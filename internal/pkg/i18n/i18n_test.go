package i18n

import "testing"

func TestTranslator_T(t *testing.T) {
	tr, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name string
		lang string
		key  string
		want string
	}{
		{name: "english", lang: "en", key: "mfa.totp.verifySuccess.title", want: "Authenticator app added"},
		{name: "indonesian", lang: "id", key: "mfa.totp.verifySuccess.title", want: "Aplikasi autentikator ditambahkan"},
		{name: "upper case tag", lang: "ID", key: "mfa.totp.refreshSuccess.title", want: "Kode QR diperbarui"},
		{name: "unsupported falls back", lang: "fr", key: "mfa.totp.initError.title", want: "Something went wrong"},
		{name: "empty falls back", lang: "", key: "deployment.triggerSuccess.title", want: "Deployment triggered"},
		{name: "unknown key", lang: "en", key: "nope.title", want: "nope.title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.T(tt.lang, tt.key); got != tt.want {
				t.Fatalf("T(%q, %q) = %q, want %q", tt.lang, tt.key, got, tt.want)
			}
		})
	}
}

func TestCatalog_SameKeys(t *testing.T) {
	for key := range catalog["en"] {
		if _, ok := catalog["id"][key]; !ok {
			t.Fatalf("id catalog misses %q", key)
		}
	}
	if len(catalog["en"]) != len(catalog["id"]) {
		t.Fatalf("catalog sizes differ: en=%d id=%d", len(catalog["en"]), len(catalog["id"]))
	}
}
