package auth

import (
	"fmt"
	"strings"
)

// ShowCredentialGuide displays step-by-step instructions for providing
// login credentials to the tool.
func ShowCredentialGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("🔐 CREDENTIAL SETUP GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("The tool logs in through a real browser session, so it needs your")
	fmt.Println("Instagram username and password. Three ways to provide them:")
	fmt.Println()

	fmt.Println("🔑 OPTION 1: Store them once (recommended)")
	fmt.Println("   igunfollow auth login")
	fmt.Println("   - Prompts for username and password")
	fmt.Println("   - Saved to the system keychain when available, otherwise to an")
	fmt.Println("     encrypted file under your config directory")
	fmt.Println()

	fmt.Println("🌱 OPTION 2: Environment variables (CI and one-off runs)")
	fmt.Println("   export IGUNFOLLOW_USERNAME=yourname")
	fmt.Println("   export IGUNFOLLOW_PASSWORD=yourpassword")
	fmt.Println()

	fmt.Println("📄 OPTION 3: A .env file next to where you run the tool")
	fmt.Println("   IGUNFOLLOW_USERNAME=yourname")
	fmt.Println("   IGUNFOLLOW_PASSWORD=yourpassword")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Accounts with two-factor auth need the browser window visible")
	fmt.Println("     for the first login; run without --headless once")
	fmt.Println("   • The password never appears in logs; stored copies are encrypted")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • These credentials give FULL access to your Instagram account")
	fmt.Println("   • NEVER share them or commit a .env file containing them")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickCredentialGuide shows a condensed version for experienced users
func ShowQuickCredentialGuide() {
	fmt.Println("\n🔐 Quick: run 'igunfollow auth login', or set IGUNFOLLOW_USERNAME and IGUNFOLLOW_PASSWORD")
	fmt.Println("   Type 'help' for detailed instructions")
}
