// Package extract finds hash-links in raw page markup.
//
// Only the double-bracket link grammar is modelled: [[Target#fragment]]
// and [[Target#fragment|label]], with the target optional. Links whose
// target or fragment use characters outside the accepted class are not
// recognized at all; missing a link is acceptable, inventing one is not.
package extract
