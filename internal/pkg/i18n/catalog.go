package i18n

var catalog = map[string]map[string]string{
	"en": {
		"mfa.totp.initError.title":      "Something went wrong",
		"mfa.totp.initError.body":       "We could not start authenticator app setup. Please try again.",
		"mfa.totp.refreshSuccess.title": "QR code refreshed",
		"mfa.totp.refreshSuccess.body":  "Scan the new QR code. The previous one no longer works.",
		"mfa.totp.refreshError.title":   "Something went wrong",
		"mfa.totp.refreshError.body":    "We could not refresh the QR code. Please try again.",
		"mfa.totp.verifySuccess.title":  "Authenticator app added",
		"mfa.totp.verifySuccess.body":   "Your authenticator app is now set up for sign-in.",
		"mfa.totp.verifyError.title":    "Something went wrong",
		"mfa.totp.verifyError.body":     "We could not verify the code. Please try again.",
		"mfa.totp.invalidCode":          "The verification code is invalid. Please try again.",
		"mfa.totp.notCompleted":         "Authenticator app setup was not completed.",

		"governance.updateSuccess.title": "Configuration updated",
		"governance.updateSuccess.body":  "The policy has been saved.",
		"governance.updateError.title":   "Update failed",
		"governance.updateError.body":    "The policy could not be saved. Please try again.",

		"deployment.triggerSuccess.title": "Deployment triggered",
		"deployment.triggerSuccess.body":  "The configuration deployment has started.",
		"deployment.triggerError.title":   "Deployment failed",
		"deployment.triggerError.body":    "The configuration deployment could not be triggered.",
		"deployment.statusError.title":    "Status unavailable",
		"deployment.statusError.body":     "The deployment details could not be loaded.",
	},
	"id": {
		"mfa.totp.initError.title":      "Terjadi kesalahan",
		"mfa.totp.initError.body":       "Pengaturan aplikasi autentikator gagal dimulai. Silakan coba lagi.",
		"mfa.totp.refreshSuccess.title": "Kode QR diperbarui",
		"mfa.totp.refreshSuccess.body":  "Pindai kode QR yang baru. Kode sebelumnya tidak berlaku lagi.",
		"mfa.totp.refreshError.title":   "Terjadi kesalahan",
		"mfa.totp.refreshError.body":    "Kode QR gagal diperbarui. Silakan coba lagi.",
		"mfa.totp.verifySuccess.title":  "Aplikasi autentikator ditambahkan",
		"mfa.totp.verifySuccess.body":   "Aplikasi autentikator Anda siap dipakai untuk masuk.",
		"mfa.totp.verifyError.title":    "Terjadi kesalahan",
		"mfa.totp.verifyError.body":     "Kode gagal diverifikasi. Silakan coba lagi.",
		"mfa.totp.invalidCode":          "Kode verifikasi tidak valid. Silakan coba lagi.",
		"mfa.totp.notCompleted":         "Pengaturan aplikasi autentikator belum selesai.",

		"governance.updateSuccess.title": "Konfigurasi diperbarui",
		"governance.updateSuccess.body":  "Kebijakan telah disimpan.",
		"governance.updateError.title":   "Pembaruan gagal",
		"governance.updateError.body":    "Kebijakan gagal disimpan. Silakan coba lagi.",

		"deployment.triggerSuccess.title": "Deployment dimulai",
		"deployment.triggerSuccess.body":  "Deployment konfigurasi sedang berjalan.",
		"deployment.triggerError.title":   "Deployment gagal",
		"deployment.triggerError.body":    "Deployment konfigurasi gagal dijalankan.",
		"deployment.statusError.title":    "Status tidak tersedia",
		"deployment.statusError.body":     "Detail deployment gagal dimuat.",
	},
}
