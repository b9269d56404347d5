package services

// verificationEmailHTML is a branded template for sending verification codes.
// Args: expiry minutes, code, year.
const verificationEmailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Your Verification Code</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f4f7fb; margin: 0; padding: 20px; }
  .container { max-width: 500px; margin: auto; background: #ffffff; border: 1px solid #e2e8f0; border-radius: 8px; overflow: hidden; }
  .header { background-color: #1e3a8a; color: white; padding: 20px; text-align: center; }
  .header h1 { margin: 0; font-size: 24px; }
  .content { padding: 30px; text-align: center; }
  .code { font-size: 36px; font-weight: bold; letter-spacing: 8px; color: #1e3a8a; background-color: #f1f5f9; padding: 15px 20px; border-radius: 5px; display: inline-block; margin: 20px 0; }
  .footer { background-color: #f8fafc; padding: 20px; text-align: center; font-size: 12px; color: #64748b; }
  p { margin-bottom: 1em; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Your Verification Code</h1>
    </div>
    <div class="content">
      <p>Please use the following code to confirm your email address. This code will expire in %d minutes.</p>
      <div class="code">%s</div>
      <p>If you did not request this code, you can safely ignore this email.</p>
    </div>
    <div class="footer">
      © %d FAPRNA. All rights reserved.
    </div>
  </div>
</body>
</html>`

// nominationEmailHTML wraps a pre-rendered body. Args: heading, body, year.
const nominationEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #1f2937; background-color: #f4f7fb; margin: 0; padding: 20px; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #e2e8f0; border-radius: 8px; }
.header { font-size: 24px; font-weight: bold; color: #1e3a8a; margin-bottom: 15px; }
.content { padding: 20px; }
.footer { margin-top: 20px; font-size: 12px; color: #64748b; text-align: center; }
p { margin-bottom: 1em; }
strong { color: #000; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h2>%s</h2>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      © %d FAPRNA. All rights reserved.
    </div>
  </div>
</body>
</html>`
