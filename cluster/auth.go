package cluster

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/nereusdb/ndbc/bsondoc"
	"github.com/nereusdb/ndbc/cos"
)

// digest computes the legacy MONGODB-CR password hash,
// md5(username + ":mongo:" + password) — md5 here isn't a library choice,
// it's mandated by the authentication mechanism itself.
func digest(username, password string) string {
	sum := md5.Sum([]byte(username + ":mongo:" + password))
	return hex.EncodeToString(sum[:])
}

// authKey computes the nonce-challenge response:
// md5(nonce + username + md5(username + ":mongo:" + password)).
func authKey(nonce, username, password string) string {
	h := digest(username, password)
	sum := md5.Sum([]byte(nonce + username + h))
	return hex.EncodeToString(sum[:])
}

// GetNonceCommand builds the { getnonce: 1 } command document.
func GetNonceCommand() bsondoc.Doc {
	return bsondoc.NewBuilder().AppendInt32("getnonce", 1).Finish()
}

// ExtractNonce pulls the "nonce" string field out of a getnonce reply.
func ExtractNonce(reply bsondoc.Doc) (string, error) {
	v, ok := reply.Lookup("nonce")
	if !ok || v.Type != bsondoc.TypeString {
		return "", cos.NewErr(cos.DomainClient, cos.CodeClientGetnonce, "getnonce reply missing nonce field")
	}
	return v.Str, nil
}

// AuthenticateCommand builds the { authenticate: 1, user, nonce, key }
// command document MONGODB-CR sends after getnonce.
func AuthenticateCommand(username, password, nonce string) bsondoc.Doc {
	key := authKey(nonce, username, password)
	return bsondoc.NewBuilder().
		AppendInt32("authenticate", 1).
		AppendString("user", username).
		AppendString("nonce", nonce).
		AppendString("key", key).
		Finish()
}

// CheckAuthenticateReply confirms a command reply's ok field is 1.
func CheckAuthenticateReply(reply bsondoc.Doc) error {
	v, ok := reply.Lookup("ok")
	if !ok || v.F64 != 1 {
		errmsg := "authentication rejected"
		if m, ok := reply.Lookup("errmsg"); ok {
			errmsg = m.Str
		}
		return cos.NewErrAuthenticate(errmsg)
	}
	return nil
}
