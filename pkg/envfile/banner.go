package envfile

import (
	"fmt"
	"sort"
	"strings"
)

// Banner returns the header written at the top of generated profile files.
func Banner() string {
	return "############################################################\n" +
		"### Deployment profile - Do not commit to version control ###\n" +
		"############################################################\n\n"
}

// Format renders a profile map as .env content with the banner, credentials
// entries grouped first and the remaining keys sorted after them.
func Format(envMap map[string]string) string {
	var b strings.Builder
	b.WriteString(Banner())

	credKeys := []string{}
	for k := range envMap {
		if strings.HasSuffix(k, "_CREDENTIALS_JSON") {
			credKeys = append(credKeys, k)
		}
	}
	sort.Strings(credKeys)
	if len(credKeys) > 0 {
		b.WriteString("### Credentials\n")
		for _, k := range credKeys {
			b.WriteString(fmt.Sprintf("%s=%s\n", k, envMap[k]))
		}
		b.WriteString("\n")
	}

	otherKeys := []string{}
	for k := range envMap {
		if !strings.HasSuffix(k, "_CREDENTIALS_JSON") {
			otherKeys = append(otherKeys, k)
		}
	}
	sort.Strings(otherKeys)
	if len(otherKeys) > 0 {
		b.WriteString("### Application settings\n")
		for _, k := range otherKeys {
			b.WriteString(fmt.Sprintf("%s=%s\n", k, envMap[k]))
		}
	}

	return b.String()
}
